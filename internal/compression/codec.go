package compression

import (
	"fmt"
	"sort"
	"strings"
)

// Codec compresses and decompresses independent data blocks.
// Implementations must be safe for concurrent use with independent buffers.
type Codec interface {
	// Name returns the codec identifier used in configuration.
	Name() string
	Compress(src []byte) ([]byte, error)
	Decompress(src []byte) ([]byte, error)
}

// Codec names accepted by New.
const (
	NameGzip = "gzip"
	NameLZ4  = "lz4"
	NameZstd = "zstd"
	NameS2   = "s2"
	NameNone = "none"
)

// DefaultCodec is the codec used when none is configured.
const DefaultCodec = NameGzip

var constructors = map[string]func(level int) (Codec, error){
	NameGzip: func(level int) (Codec, error) { return NewGzipCodec(level) },
	NameLZ4:  func(level int) (Codec, error) { return NewLZ4Codec(level), nil },
	NameZstd: func(level int) (Codec, error) { return NewZstdCodec(level) },
	NameS2:   func(level int) (Codec, error) { return NewS2Codec(level), nil },
	NameNone: func(int) (Codec, error) { return &NoneCodec{}, nil },
}

// New returns the codec registered under name. Level 0 selects the codec's
// default level.
func New(name string, level int) (Codec, error) {
	if err := Check(name, level); err != nil {
		return nil, err
	}
	return constructors[strings.ToLower(name)](level)
}

// Codecs that accept only part of the int range as a level.
var levelChecks = map[string]func(level int) error{
	NameGzip: checkGzipLevel,
	NameZstd: checkZstdLevel,
}

// Check reports the error New would return for name and level without
// building the codec.
func Check(name string, level int) error {
	key := strings.ToLower(name)
	if _, ok := constructors[key]; !ok {
		return fmt.Errorf("unknown codec %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	if check, ok := levelChecks[key]; ok {
		return check(level)
	}
	return nil
}

// Names returns the registered codec names in sorted order.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Mode selects the direction of a codec run.
type Mode uint8

const (
	ModeCompress Mode = iota + 1
	ModeDecompress
)

func (m Mode) String() string {
	switch m {
	case ModeCompress:
		return "compress"
	case ModeDecompress:
		return "decompress"
	default:
		return fmt.Sprintf("mode(%d)", m)
	}
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	return m == ModeCompress || m == ModeDecompress
}

// ParseMode parses a mode name, ignoring case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "compress":
		return ModeCompress, nil
	case "decompress":
		return ModeDecompress, nil
	default:
		return 0, fmt.Errorf("unknown mode %q: expected compress or decompress", s)
	}
}
