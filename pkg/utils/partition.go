package utils

// PartitionHashBytes 从 32 字节地址中选取 4 字节构造 uint32 并模 mod，用于 Kafka 分区选择。
// 非加密哈希，仅适合负载均匀场景。
func PartitionHashBytes(b []byte, mod uint32) uint32 {
	if len(b) < 28 || mod <= 1 {
		return 0
	}
	switch mod {
	case 2, 4, 8, 16:
		return uint32(b[27]) & (mod - 1) // 快速路径：低位掩码替代 hash + %
	}

	hash := uint32(b[7])<<24 | uint32(b[15])<<16 | uint32(b[19])<<8 | uint32(b[27])
	return hash % mod
}
