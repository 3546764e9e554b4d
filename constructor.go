package figh

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"unicode"
)

// resolveContextType is the parameter shape that marks a constructor or
// factory as context-aware.
var resolveContextType = reflect.TypeOf((*ResolveContext)(nil))

// constructorInfo holds metadata about a candidate constructor function.
type constructorInfo struct {
	fn           reflect.Value
	fnType       reflect.Type
	paramTypes   []reflect.Type
	returnsError bool
	returnType   reflect.Type
	numParams    int

	// srcPkg/srcName reference the constructor's source declaration when it
	// is a plain top-level exported function; otherwise the synthesizer
	// falls back to a stored delegate field.
	srcPkg    string
	srcName   string
	hasSrcRef bool
}

// parseConstructor analyzes a constructor function and extracts metadata.
func parseConstructor(constructor ConstructorFunc) (*constructorInfo, error) {
	if constructor == nil {
		return nil, fmt.Errorf("constructor cannot be nil")
	}

	fnValue := reflect.ValueOf(constructor)
	fnType := fnValue.Type()

	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %v", fnType.Kind())
	}

	numOut := fnType.NumOut()
	if numOut == 0 || numOut > 2 {
		return nil, fmt.Errorf("constructor must return (*T) or (*T, error), got %d return values", numOut)
	}

	returnType := fnType.Out(0)
	if returnType.Kind() != reflect.Ptr || returnType.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("constructor must return a pointer to struct, got %v", returnType)
	}

	returnsError := false
	if numOut == 2 {
		errorInterface := reflect.TypeOf((*error)(nil)).Elem()
		if !fnType.Out(1).Implements(errorInterface) {
			return nil, fmt.Errorf("constructor's second return value must be error, got %v", fnType.Out(1))
		}
		returnsError = true
	}

	numParams := fnType.NumIn()
	paramTypes := make([]reflect.Type, numParams)
	for i := 0; i < numParams; i++ {
		paramTypes[i] = fnType.In(i)
	}

	info := &constructorInfo{
		fn:           fnValue,
		fnType:       fnType,
		paramTypes:   paramTypes,
		returnsError: returnsError,
		returnType:   returnType,
		numParams:    numParams,
	}
	info.srcPkg, info.srcName, info.hasSrcRef = funcSourceRef(fnValue)
	return info, nil
}

// parseFactory analyzes an opaque factory delegate.
func parseFactory(factory FactoryFunc) (*factoryInfo, error) {
	if factory == nil {
		return nil, fmt.Errorf("factory cannot be nil")
	}

	fnValue := reflect.ValueOf(factory)
	fnType := fnValue.Type()

	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("factory must be a function, got %v", fnType.Kind())
	}

	wantsContext := false
	switch fnType.NumIn() {
	case 0:
	case 1:
		if fnType.In(0) != resolveContextType {
			return nil, fmt.Errorf("factory parameter must be *figh.ResolveContext, got %v", fnType.In(0))
		}
		wantsContext = true
	default:
		return nil, fmt.Errorf("factory must take no parameters or a single *figh.ResolveContext, got %d", fnType.NumIn())
	}

	numOut := fnType.NumOut()
	if numOut == 0 || numOut > 2 {
		return nil, fmt.Errorf("factory must return (*T) or (*T, error), got %d return values", numOut)
	}

	returnType := fnType.Out(0)
	if returnType.Kind() != reflect.Ptr || returnType.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("factory must return a pointer to struct, got %v", returnType)
	}

	returnsError := false
	if numOut == 2 {
		errorInterface := reflect.TypeOf((*error)(nil)).Elem()
		if !fnType.Out(1).Implements(errorInterface) {
			return nil, fmt.Errorf("factory's second return value must be error, got %v", fnType.Out(1))
		}
		returnsError = true
	}

	return &factoryInfo{
		fn:           fnValue,
		fnType:       fnType,
		returnsError: returnsError,
		returnType:   returnType,
		wantsContext: wantsContext,
	}, nil
}

// factoryInfo holds metadata about a factory delegate.
type factoryInfo struct {
	fn           reflect.Value
	fnType       reflect.Type
	returnsError bool
	returnType   reflect.Type
	wantsContext bool
}

// funcSourceRef recovers the package path and name of a top-level exported
// function so the synthesizer can emit a direct call to it. Closures and
// method values have no stable source name and report ok=false.
func funcSourceRef(fn reflect.Value) (pkgPath, name string, ok bool) {
	rf := runtime.FuncForPC(fn.Pointer())
	if rf == nil {
		return "", "", false
	}

	full := rf.Name()
	slash := strings.LastIndex(full, "/")
	rest := full[slash+1:]
	dot := strings.Index(rest, ".")
	if dot < 0 {
		return "", "", false
	}

	pkgPath = full[:slash+1] + rest[:dot]
	name = rest[dot+1:]
	if !isExportedIdent(name) {
		return "", "", false
	}
	return pkgPath, name, true
}

// isExportedIdent reports whether s is a plain exported Go identifier.
func isExportedIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !unicode.IsUpper(r) {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

// constructorComposition instantiates its implementation type either through
// a selected constructor function or, when ctor is nil, from the struct's
// zero value.
type constructorComposition struct {
	baseComposition
	ctor *constructorInfo
}

func (c *constructorComposition) strategy() string { return strategyConstructor }

func (c *constructorComposition) directRequiresContext() bool {
	for _, dep := range c.deps {
		if dep.kind == depContext {
			return true
		}
	}
	return false
}

func (c *constructorComposition) construct(rt *Runtime, ctx *ResolveContext) (interface{}, error) {
	if c.ctor == nil {
		return reflect.New(c.impl.Elem()).Interface(), nil
	}

	args := make([]reflect.Value, len(c.deps))
	for i, dep := range c.deps {
		val, err := rt.depValue(dep, ctx)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}

	results := c.ctor.fn.Call(args)
	if c.ctor.returnsError {
		if errV := results[1]; !errV.IsNil() {
			return nil, fmt.Errorf("constructor for %v returned error: %w", c.impl, errV.Interface().(error))
		}
	}
	return results[0].Interface(), nil
}

func (c *constructorComposition) instanceExpr(g *generator) (string, bool, error) {
	if c.ctor == nil {
		return "&" + g.typeRef(c.impl.Elem()) + "{}", false, nil
	}

	args := make([]string, len(c.deps))
	for i, dep := range c.deps {
		expr, err := g.depExpr(dep)
		if err != nil {
			return "", false, err
		}
		args[i] = expr
	}

	var call string
	if c.ctor.hasSrcRef {
		call = g.alias(c.ctor.srcPkg, "") + "." + c.ctor.srcName
	} else {
		call = "c." + g.delegateField(c)
	}
	return call + "(" + strings.Join(args, ", ") + ")", c.ctor.returnsError, nil
}

func (c *constructorComposition) postStatements(g *generator) ([]string, error) {
	return nil, nil
}

func (c *constructorComposition) containerFields(g *generator) []fieldDecl {
	if c.ctor == nil || c.ctor.hasSrcRef {
		return nil
	}
	return []fieldDecl{{
		name:  g.delegateField(c),
		typ:   g.typeRef(c.ctor.fnType),
		param: true,
	}}
}
