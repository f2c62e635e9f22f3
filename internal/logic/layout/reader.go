package layout

import (
	"clmm-price-sol/internal/types"
	"encoding/binary"
	"fmt"
	"lukechampine.com/uint128"
)

// reader 按声明顺序顺序消费字段。首次越界后记录错误，其后所有读取返回零值
type reader struct {
	data   []byte
	offset int
	err    error
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

func (r *reader) take(n int, field string) []byte {
	if r.err != nil {
		return nil
	}
	if r.offset+n > len(r.data) {
		r.err = fmt.Errorf("%w: field %s needs %d bytes at offset %d, %d left",
			ErrFieldDecode, field, n, r.offset, len(r.data)-r.offset)
		return nil
	}
	b := r.data[r.offset : r.offset+n]
	r.offset += n
	return b
}

func (r *reader) u8(field string) uint8 {
	if b := r.take(1, field); b != nil {
		return b[0]
	}
	return 0
}

func (r *reader) u16(field string) uint16 {
	if b := r.take(2, field); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (r *reader) i32(field string) int32 {
	if b := r.take(4, field); b != nil {
		return int32(binary.LittleEndian.Uint32(b))
	}
	return 0
}

func (r *reader) u64(field string) uint64 {
	if b := r.take(8, field); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (r *reader) u128(field string) uint128.Uint128 {
	if b := r.take(16, field); b != nil {
		return uint128.FromBytes(b)
	}
	return uint128.Zero
}

func (r *reader) pubkey(field string) types.Pubkey {
	var p types.Pubkey
	if b := r.take(32, field); b != nil {
		copy(p[:], b)
	}
	return p
}

// skip 跳过保留区域，只推进偏移
func (r *reader) skip(n int, field string) {
	r.take(n, field)
}
