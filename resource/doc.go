// Package resource defines the constant data carried by nodes and
// operations: meshes, images, layouts, curves and the small math types they
// use.
package resource

// ExtensionData is an opaque blob attached to an instance.
type ExtensionData struct {
	Name string
	Data []byte
}
