package types

import (
	"fmt"
	"github.com/mr-tron/base58"
)

// Pubkey 是 32 字节的链上标识（账户地址、程序 ID、mint），不做任何校验和解释
type Pubkey [32]byte

func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

func (p Pubkey) Equals(other Pubkey) bool {
	return p == other
}

func (p Pubkey) IsZero() bool {
	return p == Pubkey{}
}

// Short 返回 base58 前 4 位 + 后 4 位，仅用于日志与标签
func (p Pubkey) Short() string {
	s := p.String()
	if len(s) <= 8 {
		return s
	}
	return s[:4] + ".." + s[len(s)-4:]
}

// MarshalText 使 Pubkey 在 JSON / YAML 中以 base58 字符串输出
func (p Pubkey) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Pubkey) UnmarshalText(text []byte) error {
	key, err := TryPubkeyFromBase58(string(text))
	if err != nil {
		return err
	}
	*p = key
	return nil
}

// TryPubkeyFromBase58 解析 base58 字符串为 Pubkey，失败时返回 error（用于不信任输入路径）
func TryPubkeyFromBase58(s string) (Pubkey, error) {
	data, err := base58.Decode(s)
	if err != nil {
		return Pubkey{}, fmt.Errorf("failed to decode base58 pubkey %q: %w", s, err)
	}
	if len(data) != 32 {
		return Pubkey{}, fmt.Errorf("invalid pubkey length: got %d, want 32, input=%q", len(data), s)
	}
	var p Pubkey
	copy(p[:], data)
	return p, nil
}

// PubkeyFromBase58 仅用于编译期已知的常量地址，解析失败直接 panic
func PubkeyFromBase58(s string) Pubkey {
	p, err := TryPubkeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return p
}

func PubkeysFromBase58(strs []string) ([]Pubkey, error) {
	result := make([]Pubkey, 0, len(strs))
	for _, s := range strs {
		p, err := TryPubkeyFromBase58(s)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, nil
}
