// Package dbscope resolves resource locators describing database schema
// objects, reads their metadata through pre-authored query templates from
// one or more data sources, and feeds the normalized resources to
// generators and aggregators.
//
// # Pipeline
//
//	locator string
//	  -> locator.Parse
//	  -> registry.Dispatch (one or more readers per object type)
//	  -> reader.SQL (querytemplate + dialect/sql)
//	  -> resource.Set
//	  -> privacy.Policy
//	  -> generator.Generator (DDL, templates, Go structs, GraphQL SDL)
//	  -> aggregate.Aggregator (zip, msgpack)
//
// # Locators
//
// A locator has the form
//
//	<type>/<segment1>.<segment2>/<suffix>?<key>=<value>&...
//
// for example "table/hr.employees/create?@owner=hr". Path segments bind
// positionally to the placeholders of the type's query; missing segments
// bind to the SQL wildcard "%". Keys prefixed with "@" filter on metadata
// columns by substring; the "type" key overrides dispatch.
//
// # Errors
//
// The error taxonomy shared by the locator, registry, reader and
// dialect/sql packages is declared here. Match it with errors.Is or the
// Is* helpers.
package dbscope
