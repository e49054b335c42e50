package cosem

import "fmt"

// Object is one entry of a device's association view.
type Object struct {
	ClassID     ObjectType `yaml:"class"`
	Version     uint8      `yaml:"version"`
	LogicalName string     `yaml:"logical_name"`
	Description string     `yaml:"description,omitempty"`

	// Access holds attribute access rights. A nil map means the view did
	// not carry rights and class defaults apply.
	Access map[int]Access `yaml:"access,omitempty"`

	// MethodAccess holds method access rights. A nil map allows every
	// method.
	MethodAccess map[int]MethodAccess `yaml:"method_access,omitempty"`

	// UITypes overrides the display type of attributes.
	UITypes map[int]DataType `yaml:"ui_types,omitempty"`

	// Values are the attribute values the device holds. Only simulated
	// devices and write tests use them.
	Values map[int]Value `yaml:"values,omitempty"`
}

// String returns "Register 1.0.1.8.0.255".
func (o *Object) String() string {
	return fmt.Sprintf("%s %s", o.ClassID, o.LogicalName)
}

// Class returns the capability table entry of the object's class.
func (o *Object) Class() (*ClassInfo, bool) {
	return Lookup(o.ClassID)
}

// AttributeCount returns the number of attributes the object's class
// version declares. ok is false for classes missing from the table.
func (o *Object) AttributeCount() (int, bool) {
	c, ok := o.Class()
	if !ok {
		return 0, false
	}
	return c.AttributeCount(o.Version), true
}

// MethodCount returns the number of methods the object's class version
// declares.
func (o *Object) MethodCount() (int, bool) {
	c, ok := o.Class()
	if !ok {
		return 0, false
	}
	return c.MethodCount(o.Version), true
}

// AttributeAccess returns the access right of attribute index.
func (o *Object) AttributeAccess(index int) Access {
	if o.Access != nil {
		return o.Access[index]
	}
	if c, ok := o.Class(); ok {
		if a, ok := c.Attribute(index); ok {
			return a.Access
		}
	}
	return AccessNone
}

// MethodAccessOf returns the access right of method index.
func (o *Object) MethodAccessOf(index int) MethodAccess {
	if o.MethodAccess == nil {
		return MethodAccessAllowed
	}
	return o.MethodAccess[index]
}

// UIDataType returns the display type of attribute index.
func (o *Object) UIDataType(index int) DataType {
	if t, ok := o.UITypes[index]; ok {
		return t
	}
	if c, ok := o.Class(); ok {
		if a, ok := c.Attribute(index); ok {
			return a.Type
		}
	}
	return DataTypeNone
}

// AttributeName returns the class attribute name, or "#<index>".
func (o *Object) AttributeName(index int) string {
	if c, ok := o.Class(); ok {
		if a, ok := c.Attribute(index); ok {
			return a.Name
		}
	}
	return fmt.Sprintf("#%d", index)
}

// Clone returns a deep copy of the object.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	c := *o
	if o.Access != nil {
		c.Access = make(map[int]Access, len(o.Access))
		for k, v := range o.Access {
			c.Access[k] = v
		}
	}
	if o.MethodAccess != nil {
		c.MethodAccess = make(map[int]MethodAccess, len(o.MethodAccess))
		for k, v := range o.MethodAccess {
			c.MethodAccess[k] = v
		}
	}
	if o.UITypes != nil {
		c.UITypes = make(map[int]DataType, len(o.UITypes))
		for k, v := range o.UITypes {
			c.UITypes[k] = v
		}
	}
	if o.Values != nil {
		c.Values = make(map[int]Value, len(o.Values))
		for k, v := range o.Values {
			c.Values[k] = v.Clone()
		}
	}
	return &c
}
