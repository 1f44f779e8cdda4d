// Package codegen renders config definitions as Go source.
//
// For a definition named AppConfig with global Config, the generated file
// contains three artifacts plus read accessors:
//
//	type AppConfig struct { logLevel LogLevel; ... }     // TypeDef
//	func newAppConfig() *AppConfig { ... }               // ConstructorDef
//	var appConfigOnce = sync.OnceValue(newAppConfig)     // GlobalAccessor
//	func Config() *AppConfig { return appConfigOnce() }
//	func (a *AppConfig) LogLevel() LogLevel { ... }      // one per field
//
// Members are unexported so the only way to reach a value is through its
// accessor. Slice and map values are cloned on read. Output is gofmt'd and
// import-fixed with golang.org/x/tools/imports, so identical input always
// yields identical bytes.
package codegen
