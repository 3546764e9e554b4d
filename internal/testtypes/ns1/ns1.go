// Package ns1 holds fixture types for composition tests.
package ns1

// MyClass1 has no dependencies.
type MyClass1 struct {
	Tag string
}

// MyClass2 depends on MyClass1.
type MyClass2 struct {
	First *MyClass1
}

func NewMyClass2(first *MyClass1) *MyClass2 {
	return &MyClass2{First: first}
}

// MyClass3 depends on MyClass1 and MyClass2.
type MyClass3 struct {
	First  *MyClass1
	Second *MyClass2
}

func NewMyClass3(first *MyClass1, second *MyClass2) *MyClass3 {
	return &MyClass3{First: first, Second: second}
}
