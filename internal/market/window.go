package market

// Window 保存最近 N 根已收盘 K 线，先进先出。
// 由信号检测路径独占持有，追加由行情摄入路径完成。
type Window struct {
	capacity int
	candles  []Candle
}

// NewWindow 创建容量为 capacity 的滚动窗口。
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = 200
	}
	return &Window{capacity: capacity}
}

// Push 追加一根 K 线，超出容量时淘汰最旧的。
// 与最后一根 OpenTime 相同的重复推送会被忽略，保证摄入路径幂等。
func (w *Window) Push(c Candle) {
	if n := len(w.candles); n > 0 && w.candles[n-1].OpenTime == c.OpenTime {
		return
	}
	w.candles = append(w.candles, c)
	if len(w.candles) > w.capacity {
		w.candles = w.candles[len(w.candles)-w.capacity:]
	}
}

// Replace 用一段历史 K 线整体重建窗口（仅保留最近 capacity 根）。
func (w *Window) Replace(candles []Candle) {
	w.candles = w.candles[:0]
	start := 0
	if len(candles) > w.capacity {
		start = len(candles) - w.capacity
	}
	w.candles = append(w.candles, candles[start:]...)
}

// Len 返回窗口内 K 线数量。
func (w *Window) Len() int { return len(w.candles) }

// Capacity 返回窗口容量。
func (w *Window) Capacity() int { return w.capacity }

// Candles 返回窗口内容的只读副本。
func (w *Window) Candles() []Candle {
	out := make([]Candle, len(w.candles))
	copy(out, w.candles)
	return out
}

// At 返回倒数第 i 根 K 线（i=0 为最新一根）。
func (w *Window) At(i int) (Candle, bool) {
	idx := len(w.candles) - 1 - i
	if idx < 0 {
		return Candle{}, false
	}
	return w.candles[idx], true
}

// Closes 返回窗口内全部收盘价。
func (w *Window) Closes() []float64 {
	out := make([]float64, len(w.candles))
	for i, c := range w.candles {
		out[i] = c.Close
	}
	return out
}
