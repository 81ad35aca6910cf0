package client

// Widget is the minimal contract comfymeta needs from a host UI widget: a
// mutable string value with an optional change callback, discoverable by a
// name or type tag.
type Widget struct {
	Name     string
	Type     string
	Callback func(value string)

	value string
}

// Value returns the widget's current string value.
func (w *Widget) Value() string {
	return w.value
}

// SetValue stores the new value and fires the widget's change callback.
func (w *Widget) SetValue(value string) {
	w.value = value
	if w.Callback != nil {
		w.Callback(value)
	}
}

// WidgetSet is the collection of widgets a host node exposes.
type WidgetSet []*Widget

// FindByName returns the first widget with the given name
func (s WidgetSet) FindByName(name string) *Widget {
	for _, w := range s {
		if w.Name == name {
			return w
		}
	}
	return nil
}

// FindByType returns the first widget with the given type tag
func (s WidgetSet) FindByType(wtype string) *Widget {
	for _, w := range s {
		if w.Type == wtype {
			return w
		}
	}
	return nil
}
