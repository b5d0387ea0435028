package lib

// DigitWidth returns how many columns val takes when printed in decimal,
// not counting a sign. Used to size line-number gutters.
func DigitWidth(val int) int {
	if val < 0 {
		val = -val
	}
	width := 1
	for val >= 10 {
		val /= 10
		width++
	}
	return width
}
