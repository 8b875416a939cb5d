// Package config defines the format-agnostic program model and the Loader
// interface that fills it.
//
// The `config.Program` is the single input of engine.LoadProgram. It
// describes actors, their variables and their scripts as plain data: brick
// kinds are names and brick parameters are formulas. Resolving those names
// into typed bricks and variable handles is the engine's job. Concrete
// loaders, such as for HCL, live in separate packages.
package config
