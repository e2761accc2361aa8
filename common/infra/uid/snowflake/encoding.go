package snowflake

import (
	"strconv"

	bsf "github.com/bwmarrin/snowflake"
)

// Encoding uid的文本编码方式，位布局与bwmarrin/snowflake默认布局一致，直接复用其编码
type Encoding int

const (
	Decimal Encoding = iota
	Base2
	Base32
	Base36
	Base58
	Base64
)

func Encode(uid int64, enc Encoding) (string, error) {
	id := bsf.ParseInt64(uid)
	switch enc {
	case Decimal:
		return id.String(), nil
	case Base2:
		return id.Base2(), nil
	case Base32:
		return id.Base32(), nil
	case Base36:
		return id.Base36(), nil
	case Base58:
		return id.Base58(), nil
	case Base64:
		return id.Base64(), nil
	default:
		return "", ErrInvalidEncoding
	}
}

func Parse(s string, enc Encoding) (int64, error) {
	var id bsf.ID
	var err error

	switch enc {
	case Decimal:
		id, err = bsf.ParseString(s)
	case Base2:
		id, err = bsf.ParseBase2(s)
	case Base32:
		id, err = bsf.ParseBase32([]byte(s))
	case Base36:
		id, err = bsf.ParseBase36(s)
	case Base58:
		id, err = bsf.ParseBase58([]byte(s))
	case Base64:
		id, err = bsf.ParseBase64(s)
	default:
		return 0, ErrInvalidEncoding
	}
	if err != nil {
		return 0, err
	}
	return id.Int64(), nil
}

func (e Encoding) String() string {
	switch e {
	case Decimal:
		return "decimal"
	case Base2:
		return "base2"
	case Base32:
		return "base32"
	case Base36:
		return "base36"
	case Base58:
		return "base58"
	case Base64:
		return "base64"
	default:
		return "encoding(" + strconv.Itoa(int(e)) + ")"
	}
}
