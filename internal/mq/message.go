package mq

import (
	"bytes"
	"clmm-price-sol/internal/logic/pricing"
	"clmm-price-sol/internal/types"
	"clmm-price-sol/internal/utils"
	"encoding/json"
	"fmt"
	"google.golang.org/protobuf/types/known/structpb"
	"strconv"
	"time"
)

const (
	FormatJSON  = "json"
	FormatProto = "proto"
)

// EventTypePriceReport proto 格式消息的事件类型前缀
const EventTypePriceReport uint32 = 1

// ReportMessage 推送到 Kafka 的单条价格报告，以池子地址为 key
type ReportMessage struct {
	Pool       types.Pubkey         `json:"pool"`
	ObservedAt time.Time            `json:"observed_at"`
	Report     *pricing.PriceReport `json:"report"`
}

// Encode 按格式编码消息体
// - json: 直接 JSON 序列化
// - proto: JSON 转 structpb.Struct 后用 EncodeEvent 加上事件类型前缀，超出 2^53 的整数以字符串保存
func (m *ReportMessage) Encode(format string) ([]byte, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal report %s: %w", m.Pool, err)
	}

	switch format {
	case "", FormatJSON:
		return raw, nil
	case FormatProto:
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var fields map[string]any
		if err := dec.Decode(&fields); err != nil {
			return nil, fmt.Errorf("unmarshal report %s: %w", m.Pool, err)
		}
		st, err := structpb.NewStruct(normalizeNumbers(fields).(map[string]any))
		if err != nil {
			return nil, fmt.Errorf("build struct %s: %w", m.Pool, err)
		}
		return utils.EncodeEvent(EventTypePriceReport, st)
	default:
		return nil, fmt.Errorf("unsupported message format %q", format)
	}
}

// maxExactFloat 大于该值的整数无法用 float64 精确表示
const maxExactFloat = 1 << 53

// normalizeNumbers 把 json.Number 转成 structpb 可接受的类型：
// 能被 float64 精确表示的整数转 float64，其余（如 u64 bitmap、epoch）保留十进制字符串
func normalizeNumbers(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, item := range x {
			x[k] = normalizeNumbers(item)
		}
		return x
	case []any:
		for i, item := range x {
			x[i] = normalizeNumbers(item)
		}
		return x
	case json.Number:
		if n, err := strconv.ParseInt(x.String(), 10, 64); err == nil && n >= -maxExactFloat && n <= maxExactFloat {
			return float64(n)
		}
		return x.String()
	default:
		return v
	}
}
