package parser

import (
	"context"

	pool "github.com/jolestar/go-commons-pool"
)

// stack holds the state stack and the value stack of a parse session. len(states) is always
// len(nodes)+1; the bottom state has no value.
type stack struct {
	states []int
	nodes  []*Child
}

func (s *stack) top() int {
	return s.states[len(s.states)-1]
}

func (s *stack) push(state int, node *Child) {
	s.states = append(s.states, state)
	s.nodes = append(s.nodes, node)
}

// pop removes n frames and returns their values in stack order.
func (s *stack) pop(n int) []*Child {
	children := make([]*Child, n)
	copy(children, s.nodes[len(s.nodes)-n:])
	s.states = s.states[:len(s.states)-n]
	s.nodes = s.nodes[:len(s.nodes)-n]
	return children
}

func (s *stack) reset(initial int) {
	s.states = append(s.states[:0], initial)
	for i := range s.nodes {
		s.nodes[i] = nil
	}
	s.nodes = s.nodes[:0]
}

type stackPool struct {
	ctx   context.Context
	opool *pool.ObjectPool
}

var globalStackPool *stackPool

func init() {
	globalStackPool = &stackPool{}
	factory := pool.NewPooledObjectFactorySimple(
		func(context.Context) (interface{}, error) {
			return &stack{
				states: make([]int, 0, 64),
				nodes:  make([]*Child, 0, 64),
			}, nil
		})
	globalStackPool.ctx = context.Background()
	config := pool.NewDefaultPoolConfig()
	config.MaxTotal = -1 // infinity
	config.BlockWhenExhausted = false
	globalStackPool.opool = pool.NewObjectPool(globalStackPool.ctx, factory, config)
}

// borrowStack returns an empty stack whose bottom is `initial`.
func borrowStack(initial int) (*stack, error) {
	o, err := globalStackPool.opool.BorrowObject(globalStackPool.ctx)
	if err != nil {
		return nil, err
	}
	s := o.(*stack)
	s.reset(initial)
	return s, nil
}

// releaseStack clears the stack and puts it back into the pool.
func releaseStack(s *stack) {
	s.reset(0)
	if err := globalStackPool.opool.ReturnObject(globalStackPool.ctx, s); err != nil {
		tracer().Errorf("cannot return a stack to the pool: %v", err)
	}
}
