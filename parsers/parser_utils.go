package parsers

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// SkipBOM はUTF-8 BOMをスキップします。
func SkipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	bom := []byte{0xEF, 0xBB, 0xBF}
	peeked, err := br.Peek(3)
	if err != nil {
		return br
	}
	isBOM := true
	for i, b := range bom {
		if peeked[i] != b {
			isBOM = false
			break
		}
	}
	if isBOM {
		br.Read(make([]byte, 3))
	}
	return br
}

// DecodeJapanese はUTF-8でない入力をShift-JISとしてデコードします。
// Excelが書き出すCSVはShift-JISのことが多いため、両方を受け付けます。
func DecodeJapanese(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	peeked, err := br.Peek(1024)
	if err != nil && err != io.EOF {
		return br
	}
	// 途中で切れたマルチバイト文字は末尾を最大3バイト削って判定する
	for i := 0; i < 4 && len(peeked) > 0; i++ {
		if utf8.Valid(peeked) {
			return SkipBOM(br)
		}
		peeked = peeked[:len(peeked)-1]
	}
	return transform.NewReader(br, japanese.ShiftJIS.NewDecoder())
}

// getColIndex はヘッダー名から列インデックスを取得するヘルパーです。
func getColIndex(header []string, required []string) (map[string]int, error) {
	colIndex := make(map[string]int)
	for i, colName := range header {
		colIndex[strings.TrimSpace(colName)] = i
	}
	for _, req := range required {
		if _, ok := colIndex[req]; !ok {
			return nil, fmt.Errorf("必須ヘッダーが見つかりません: %s", req)
		}
	}
	return colIndex, nil
}
