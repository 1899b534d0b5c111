// Package textcodec преобразует текст команд и ответов устройства между
// строками Go и байтами на линии. Кодировка задается WHATWG-меткой ("utf-8",
// "windows-1251", ...), по умолчанию UTF-8.
package textcodec

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultEncoding метка кодировки по умолчанию
const DefaultEncoding = "utf-8"

var ErrUnknownEncoding = errors.New("textcodec: unknown encoding label")

// Lookup находит кодировку по метке. Пустая метка означает UTF-8.
func Lookup(label string) (encoding.Encoding, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return unicode.UTF8, nil
	}
	enc, _ := charset.Lookup(label)
	if enc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, label)
	}
	return enc, nil
}

// Codec создает кодировщики и потоковые декодеры для одной кодировки.
type Codec struct {
	enc encoding.Encoding
}

// New создает Codec по метке кодировки.
func New(label string) (*Codec, error) {
	enc, err := Lookup(label)
	if err != nil {
		return nil, err
	}
	return &Codec{enc: enc}, nil
}

// MustUTF8 возвращает Codec для UTF-8.
func MustUTF8() *Codec {
	return &Codec{enc: unicode.UTF8}
}

// EncodeLine кодирует команду и добавляет завершающий перевод строки.
func (c *Codec) EncodeLine(command string) ([]byte, error) {
	b, err := c.enc.NewEncoder().Bytes([]byte(command + "\n"))
	if err != nil {
		return nil, fmt.Errorf("ошибка кодирования команды: %w", err)
	}
	return b, nil
}

// NewDecoder создает потоковый декодер. Каждому циклу чтения нужен свой.
func (c *Codec) NewDecoder() *Decoder {
	return &Decoder{t: c.enc.NewDecoder()}
}

// Decoder декодирует поток, пришедший произвольными кусками.
// Неполная многобайтовая последовательность в конце куска
// откладывается до следующего вызова Decode.
type Decoder struct {
	t       transform.Transformer
	pending []byte
	buf     [4096]byte
}

// Decode декодирует очередной кусок и возвращает готовый текст.
func (d *Decoder) Decode(chunk []byte) string {
	src := append(d.pending, chunk...)
	d.pending = nil
	out, rest := d.transform(src, false)
	if len(rest) > 0 {
		d.pending = append([]byte(nil), rest...)
	}
	return out
}

// Flush возвращает остаток буфера (неполные последовательности заменяются на U+FFFD)
// и сбрасывает состояние декодера.
func (d *Decoder) Flush() string {
	src := d.pending
	d.pending = nil
	out, _ := d.transform(src, true)
	d.t.Reset()
	return out
}

// Pending количество байт, ожидающих продолжения последовательности.
func (d *Decoder) Pending() int {
	return len(d.pending)
}

func (d *Decoder) transform(src []byte, atEOF bool) (string, []byte) {
	var sb strings.Builder
	for {
		nDst, nSrc, err := d.t.Transform(d.buf[:], src, atEOF)
		sb.Write(d.buf[:nDst])
		src = src[nSrc:]

		switch {
		case err == nil:
			return sb.String(), nil
		case errors.Is(err, transform.ErrShortDst) && (nDst > 0 || nSrc > 0):
			continue
		case errors.Is(err, transform.ErrShortSrc):
			return sb.String(), src
		default:
			// Неисправимая ошибка трансформера: отдаем остаток как есть
			sb.Write(src)
			return sb.String(), nil
		}
	}
}
