package fuzz

import "context"

// dirPool hands out numbered working directories. A trial holds its token
// while it writes and compiles, so no two trials share a directory.
type dirPool chan int

func newDirPool(n int) dirPool {
	p := make(dirPool, n)
	for i := range n {
		p <- i
	}
	return p
}

func (p dirPool) acquire(ctx context.Context) (int, error) {
	select {
	case i := <-p:
		return i, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (p dirPool) release(i int) {
	p <- i
}
