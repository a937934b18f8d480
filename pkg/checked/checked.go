package checked

import "math"

// 本包提供uint64的受检整数运算。
// 结算引擎的全部金额计算都必须经过这些函数，任何溢出/下溢
// 都以ok=false的形式暴露，由调用方中止整个操作。

// Add 返回 a+b，溢出时ok为false
func Add(a, b uint64) (uint64, bool) {
	if a > math.MaxUint64-b {
		return 0, false
	}
	return a + b, true
}

// Sub 返回 a-b，下溢时ok为false
func Sub(a, b uint64) (uint64, bool) {
	if a < b {
		return 0, false
	}
	return a - b, true
}

// Mul 返回 a*b，溢出时ok为false
func Mul(a, b uint64) (uint64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxUint64/b {
		return 0, false
	}
	return a * b, true
}

// Div 返回 a/b（向下取整），除零时ok为false
func Div(a, b uint64) (uint64, bool) {
	if b == 0 {
		return 0, false
	}
	return a / b, true
}
