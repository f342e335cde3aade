// Package idgen 生成粘贴的短标识符.
//
// 标识符从字母表中均匀抽取，默认字母表为 [A-Za-z0-9]，默认长度 4.
// 使用 crypto/rand 与拒绝采样，避免取模带来的偏差.
package idgen

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

const (
	// DefaultAlphabet 默认字母表.
	DefaultAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// DefaultLength 默认长度.
	DefaultLength = 4

	maxAlphabet = 256
)

// ErrInvalidAlphabet 字母表为空、过长或含重复字符.
var ErrInvalidAlphabet = errors.New("idgen: invalid alphabet")

// Generator 标识符生成器，可并发使用.
type Generator struct {
	alphabet []byte
	length   int
	limit    byte // 拒绝采样上限：大于等于 limit 的随机字节丢弃
	rand     io.Reader
}

// Option 生成器选项.
type Option func(*Generator)

// WithRand 替换随机源，测试使用.
func WithRand(r io.Reader) Option {
	return func(g *Generator) { g.rand = r }
}

// New 创建生成器，length<=0 时使用默认长度，alphabet 为空时使用默认字母表.
func New(length int, alphabet string, opts ...Option) (*Generator, error) {
	if length <= 0 {
		length = DefaultLength
	}

	if alphabet == "" {
		alphabet = DefaultAlphabet
	}

	if len(alphabet) > maxAlphabet {
		return nil, ErrInvalidAlphabet
	}

	seen := make(map[byte]struct{}, len(alphabet))
	for i := 0; i < len(alphabet); i++ {
		if _, dup := seen[alphabet[i]]; dup {
			return nil, ErrInvalidAlphabet
		}

		seen[alphabet[i]] = struct{}{}
	}

	// 256 能被字母表长度整除时 limit 溢出为 0，表示不需要拒绝
	g := &Generator{
		alphabet: []byte(alphabet),
		length:   length,
		limit:    byte(maxAlphabet - maxAlphabet%len(alphabet)),
		rand:     rand.Reader,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// MustNew 同 New，出错时 panic.
func MustNew(length int, alphabet string) *Generator {
	g, err := New(length, alphabet)
	if err != nil {
		panic(err)
	}

	return g
}

// Length 返回标识符长度.
func (g *Generator) Length() int { return g.length }

// Generate 生成一个新的标识符.
func (g *Generator) Generate() (string, error) {
	out := make([]byte, 0, g.length)
	buf := make([]byte, g.length*2)

	for len(out) < g.length {
		if _, err := io.ReadFull(g.rand, buf); err != nil {
			return "", fmt.Errorf("idgen: read random: %w", err)
		}

		for _, b := range buf {
			if g.limit != 0 && b >= g.limit {
				continue
			}

			out = append(out, g.alphabet[int(b)%len(g.alphabet)])
			if len(out) == g.length {
				break
			}
		}
	}

	return string(out), nil
}

// Valid 判断 id 是否只包含字母表字符. 不校验长度，历史标识符可能使用不同长度.
func (g *Generator) Valid(id string) bool {
	if id == "" || len(id) > maxAlphabet {
		return false
	}

	for i := 0; i < len(id); i++ {
		found := false

		for _, c := range g.alphabet {
			if id[i] == c {
				found = true
				break
			}
		}

		if !found {
			return false
		}
	}

	return true
}
