package ibus

import "github.com/godbus/dbus/v5"

// Text is the IBusText serializable, signature (sa{sv}sv).
type Text struct {
	Name        string
	Attachments map[string]dbus.Variant
	Text        string
	AttrList    dbus.Variant
}

// AttrList is the IBusAttrList serializable, signature (sa{sv}av).
type AttrList struct {
	Name        string
	Attachments map[string]dbus.Variant
	Attributes  []dbus.Variant
}

func newText(s string) Text {
	return Text{
		Name:        "IBusText",
		Attachments: map[string]dbus.Variant{},
		Text:        s,
		AttrList: dbus.MakeVariant(AttrList{
			Name:        "IBusAttrList",
			Attachments: map[string]dbus.Variant{},
			Attributes:  []dbus.Variant{},
		}),
	}
}
