package utils

import "sync"

// ParallelMap 以最多 workers 个协程并发执行 fn，结果按输入顺序返回。
// 单元素或 workers<=1 时直接串行处理
func ParallelMap[T any, R any](items []T, workers int, fn func(T) R) []R {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results
	}
	if workers <= 1 || len(items) == 1 {
		for i, item := range items {
			results[i] = fn(item)
		}
		return results
	}
	if workers > len(items) {
		workers = len(items)
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = fn(items[i])
			}
		}()
	}
	for i := range items {
		indexes <- i
	}
	close(indexes)
	wg.Wait()
	return results
}
