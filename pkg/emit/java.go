package emit

import (
	"fmt"
	"strings"

	"github.com/ritzau/drawio-codegen/pkg/model"
)

// JavaEmitter writes one plain Java class per file: private fields, a no-arg
// constructor that initialises list fields, and a getter/setter pair per field.
type JavaEmitter struct{}

// NewJavaEmitter creates a Java emitter
func NewJavaEmitter() *JavaEmitter {
	return &JavaEmitter{}
}

func (e *JavaEmitter) Language() string { return "java" }

func (e *JavaEmitter) FileName(className string) string { return className + ".java" }

func (e *JavaEmitter) Emit(c *model.ClassDef) ([]byte, error) {
	var b strings.Builder

	if c.HasCollections() {
		b.WriteString("import java.util.List;\n")
		b.WriteString("import java.util.ArrayList;\n\n")
	}

	if c.Parent != "" {
		fmt.Fprintf(&b, "public class %s extends %s {\n\n", c.Name, c.Parent)
	} else {
		fmt.Fprintf(&b, "public class %s {\n\n", c.Name)
	}

	if len(c.Fields) > 0 {
		b.WriteString("    // Fields\n")
		for _, f := range c.Fields {
			fmt.Fprintf(&b, "    private %s %s;\n", javaType(f), f.Name)
		}
		b.WriteString("\n")
	}

	b.WriteString("    // Constructor\n")
	fmt.Fprintf(&b, "    public %s() {\n", c.Name)
	for _, f := range c.Fields {
		if f.IsCollection {
			fmt.Fprintf(&b, "        this.%s = new ArrayList<>();\n", f.Name)
		}
	}
	b.WriteString("    }\n\n")

	if len(c.Fields) > 0 {
		b.WriteString("    // Getters and Setters\n")
		for _, f := range c.Fields {
			t := javaType(f)
			accessor := capitalize(f.Name)

			fmt.Fprintf(&b, "    public %s get%s() {\n", t, accessor)
			fmt.Fprintf(&b, "        return %s;\n", f.Name)
			b.WriteString("    }\n\n")

			fmt.Fprintf(&b, "    public void set%s(%s %s) {\n", accessor, t, f.Name)
			fmt.Fprintf(&b, "        this.%s = %s;\n", f.Name, f.Name)
			b.WriteString("    }\n\n")
		}
	}

	b.WriteString("}")

	return []byte(b.String()), nil
}

func javaType(f model.FieldDef) string {
	if f.IsCollection {
		return "List<" + f.Type + ">"
	}
	return f.Type
}
