// Package ns2 holds fixture types whose simple names collide with package ns1.
package ns2

// MyClass1 shares its simple name with ns1.MyClass1.
type MyClass1 struct {
	Tag string
}

// MyClass2 depends on this package's MyClass1.
type MyClass2 struct {
	First *MyClass1
}

func NewMyClass2(first *MyClass1) *MyClass2 {
	return &MyClass2{First: first}
}
