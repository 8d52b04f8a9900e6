package desensitize

import (
	"io"
)

// Writer 写入前对日志行脱敏
type Writer struct {
	w    io.Writer
	hook *Hook
}

func NewWriter(w io.Writer, hook *Hook) *Writer {
	if w == nil || hook == nil {
		panic("desensitize: writer and hook are required")
	}
	return &Writer{w: w, hook: hook}
}

func (w *Writer) Write(p []byte) (int, error) {
	if len(p) == 0 || w.hook.RuleCount() == 0 {
		return w.w.Write(p)
	}

	text := string(p)
	masked := w.hook.Desensitize(text)
	if masked == text {
		return w.w.Write(p)
	}
	if _, err := io.WriteString(w.w, masked); err != nil {
		return 0, err
	}
	// zerolog 要求返回原始长度
	return len(p), nil
}
