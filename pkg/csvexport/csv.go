// Package csvexport 生成带 BOM 的 UTF-8 CSV，供 Excel 直接打开。
package csvexport

import (
	"bytes"
	"strings"
)

// BOM UTF-8 字节序标记
const BOM = "\uFEFF"

// EscapeCell 含逗号、双引号或换行时用双引号包裹，内部双引号加倍；否则原样输出
func EscapeCell(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Build 生成 CSV 内容：BOM + 表头 + 数据行，行之间以 \n 连接
func Build(header []string, rows [][]string) []byte {
	var buf bytes.Buffer
	buf.WriteString(BOM)
	writeRow(&buf, header)
	for _, row := range rows {
		buf.WriteByte('\n')
		writeRow(&buf, row)
	}
	return buf.Bytes()
}

func writeRow(buf *bytes.Buffer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(EscapeCell(c))
	}
}
