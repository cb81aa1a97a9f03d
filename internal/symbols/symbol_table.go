// symbols/symbol_table.go - Main symbol table entry point
//
// - symbol_table_core.go: Symbol, symbol kinds and scope types
// - symbol_table_operations.go: scope creation, definition and lookup

package symbols
