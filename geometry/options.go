package geometry

// Measurer 由具备真实文字测量能力的渲染器实现，仅用于诊断估算误差；
// 几何引擎本身从不依赖它。fontSize 与返回值均为像素。
type Measurer interface {
	MeasureLine(text string, fontSize float64) float64
}

// EstimateError 返回估算行宽相对真实测量的误差比例（估算/实测 - 1）。
// 测量结果为 0 时返回 0。
func EstimateError(m Measurer, line string, fontSize float64) float64 {
	if m == nil {
		return 0
	}
	measured := m.MeasureLine(line, fontSize)
	if measured <= 0 {
		return 0
	}
	return EstimateLineWidth(NormalizeText(line), fontSize)/measured - 1
}
