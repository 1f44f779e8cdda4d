// Package spec provides parsing and validation for .roost.yml config specs.
//
// A spec names the generated struct type, the global accessor and an ordered
// list of (name, type, default) field descriptors:
//
//	apiVersion: v1
//	kind: Config
//	name: AppConfig
//	spec:
//	  global: Config
//	  fields:
//	    - name: log_level
//	      type: LogLevel
//	      default: LogLevelInfo
//	    - name: environment
//	      type: string
//	      default: "production"
//
// Validation is static: identifiers, duplicate names and the syntax of types
// and defaults are checked here, and every problem is reported with its YAML
// line. Whether a default actually has its field's type is decided later by
// the type check stage, against the real target package.
package spec
