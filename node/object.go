package node

import "github.com/chazu/mutable/resource"

// ---------------------------------------------------------------------------
// Surfaces
// ---------------------------------------------------------------------------

// SurfaceImage is one texture slot of a surface. A negative LayoutIndex means
// the image is not packed in any layout.
type SurfaceImage struct {
	Name                  string
	Image                 Image
	LayoutIndex           int32
	MaterialParameterName string
}

type SurfaceVector struct {
	Name  string
	Value Color
}

type SurfaceScalar struct {
	Name  string
	Value Scalar
}

type SurfaceString struct {
	Name  string
	Value String
}

// NoSharedSurface marks a surface that does not share its mesh across LODs.
const NoSharedSurface = -1

type SurfaceNew struct {
	Name            string
	ExternalID      uint32
	SharedSurfaceID int32
	Mesh            Mesh
	Images          []SurfaceImage
	Vectors         []SurfaceVector
	Scalars         []SurfaceScalar
	Strings         []SurfaceString
	// Tags are activated by this surface when it is enabled.
	Tags []string
}

// SurfaceVariationOption is one branch of a surface variation. Tag holds a
// tag name or a state name depending on the variation type.
type SurfaceVariationOption struct {
	Tag       string
	Surfaces  []Surface
	Modifiers []Modifier
}

type SurfaceVariation struct {
	Type             VariationType
	Defaults         []Surface
	DefaultModifiers []Modifier
	Variations       []SurfaceVariationOption
}

type SurfaceSwitch struct {
	Parameter Scalar
	Options   []Surface
}

func (*SurfaceNew) Kind() Kind       { return KindSurfaceNew }
func (*SurfaceVariation) Kind() Kind { return KindSurfaceVariation }
func (*SurfaceSwitch) Kind() Kind    { return KindSurfaceSwitch }

func (*SurfaceNew) surfaceNode()       {}
func (*SurfaceVariation) surfaceNode() {}
func (*SurfaceSwitch) surfaceNode()    {}

func (n *SurfaceNew) DisplayName() string { return n.Name }

// ---------------------------------------------------------------------------
// LODs and components
// ---------------------------------------------------------------------------

type LOD struct {
	Surfaces []Surface
}

func (*LOD) Kind() Kind { return KindLOD }

type ComponentNew struct {
	Name string
	ID   uint16
	LODs []*LOD
}

// ComponentEdit adds surfaces to the LODs of an existing component.
type ComponentEdit struct {
	Parent *ComponentNew
	LODs   []*LOD
}

type ComponentSwitch struct {
	Parameter Scalar
	Options   []Component
}

type ComponentVariation struct {
	Default    Component
	Variations []TagBranch[Component]
}

func (*ComponentNew) Kind() Kind       { return KindComponentNew }
func (*ComponentEdit) Kind() Kind      { return KindComponentEdit }
func (*ComponentSwitch) Kind() Kind    { return KindComponentSwitch }
func (*ComponentVariation) Kind() Kind { return KindComponentVariation }

func (*ComponentNew) componentNode()       {}
func (*ComponentEdit) componentNode()      {}
func (*ComponentSwitch) componentNode()    {}
func (*ComponentVariation) componentNode() {}

func (n *ComponentNew) DisplayName() string { return n.Name }

// ---------------------------------------------------------------------------
// Objects
// ---------------------------------------------------------------------------

// State is a named set of parameters that can be updated at runtime without
// regenerating the whole instance.
type State struct {
	Name          string
	RuntimeParams []string
}

// ExtensionDataSlot attaches extension data to an object under a name.
type ExtensionDataSlot struct {
	Name  string
	Value ExtensionData
}

type ObjectNew struct {
	Name          string
	UID           string
	Components    []Component
	Modifiers     []Modifier
	Children      []Object
	States        []State
	ExtensionData []ExtensionDataSlot
}

// GroupType selects how the children of an object group are enabled.
type GroupType uint8

const (
	GroupToggleEach GroupType = iota
	GroupAlwaysAll
	GroupOneOrNone
	GroupAlwaysOne
)

type ObjectGroup struct {
	Name         string
	UID          string
	Type         GroupType
	Children     []Object
	DefaultValue int32
}

func (*ObjectNew) Kind() Kind   { return KindObjectNew }
func (*ObjectGroup) Kind() Kind { return KindObjectGroup }

func (*ObjectNew) objectNode()   {}
func (*ObjectGroup) objectNode() {}

func (n *ObjectNew) DisplayName() string   { return n.Name }
func (n *ObjectGroup) DisplayName() string { return n.Name }

// ObjectName returns the name of an object node.
func ObjectName(o Object) string {
	switch n := o.(type) {
	case *ObjectNew:
		return n.Name
	case *ObjectGroup:
		return n.Name
	}
	return ""
}

// ObjectUID returns the uid of an object node.
func ObjectUID(o Object) string {
	switch n := o.(type) {
	case *ObjectNew:
		return n.UID
	case *ObjectGroup:
		return n.UID
	}
	return ""
}

// ---------------------------------------------------------------------------
// Extension data
// ---------------------------------------------------------------------------

type ExtensionDataConstant struct {
	Value *resource.ExtensionData
}

type ExtensionDataSwitch struct {
	Parameter Scalar
	Options   []ExtensionData
}

type ExtensionDataVariation struct {
	Default    ExtensionData
	Variations []TagBranch[ExtensionData]
}

func (*ExtensionDataConstant) Kind() Kind  { return KindExtensionDataConstant }
func (*ExtensionDataSwitch) Kind() Kind    { return KindExtensionDataSwitch }
func (*ExtensionDataVariation) Kind() Kind { return KindExtensionDataVariation }

func (*ExtensionDataConstant) extensionDataNode()  {}
func (*ExtensionDataSwitch) extensionDataNode()    {}
func (*ExtensionDataVariation) extensionDataNode() {}
