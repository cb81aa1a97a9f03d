package evaluator

import "github.com/funvibe/ktjvm/internal/symbols"

// Environment holds the variables of one routine activation. Variables are
// keyed by their resolved symbol, so shadowing never needs a scope chain.
type Environment struct {
	store map[*symbols.Symbol]Object
}

func NewEnvironment() *Environment {
	return &Environment{store: make(map[*symbols.Symbol]Object)}
}

func (e *Environment) Get(sym *symbols.Symbol) (Object, bool) {
	obj, ok := e.store[sym]
	return obj, ok
}

func (e *Environment) Set(sym *symbols.Symbol, val Object) Object {
	e.store[sym] = val
	return val
}
