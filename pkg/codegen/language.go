package codegen

import (
	"fmt"
	"strings"

	"github.com/xplshn/blockc/pkg/block"
)

// Language describes the per-target surface of the generated text. The promise
// chain itself is identical for every target; only declarations and a handful of
// spellings differ.
type Language struct {
	Name        string
	IntType     string
	DecimalType string
	LinkbotType string
	PowFunc     string
	Reserved    []string
}

var cReserved = strings.Split(
	"auto,const,double,float,int,short,struct,unsigned,"+
		"break,continue,else,for,long,signed,switch,void,"+
		"case,default,enum,goto,register,sizeof,typedef,volatile,"+
		"char,do,extern,if,return,static,union,while", ",")

var cppReserved = strings.Split(
	"bool,catch,class,delete,false,friend,inline,namespace,new,operator,"+
		"private,protected,public,template,this,throw,true,try,typename,using,virtual", ",")

var jsReserved = strings.Split(
	"break,case,catch,class,const,continue,debugger,default,delete,do,else,export,extends,"+
		"finally,for,function,if,import,in,instanceof,new,return,super,switch,this,throw,try,"+
		"typeof,var,void,while,with,yield,enum,await,implements,package,protected,static,"+
		"interface,private,public,null,true,false,undefined,NaN,Infinity,arguments,eval,let,"+
		"window,document", ",")

// runtimeReserved are names owned by the generator or the runtime helpers
var runtimeReserved = []string{
	"Blockly", "flow", "funcResolve", "funcReject", "promiseTimes", "promiseWhile",
	"Promise", "Math", "blockly_loop_break_flag",
}

var (
	Ch = &Language{
		Name:        "ch",
		IntType:     "int",
		DecimalType: "double",
		LinkbotType: "CLinkbotI",
		PowFunc:     "pow",
		Reserved:    cReserved,
	}
	Cpp = &Language{
		Name:        "cpp",
		IntType:     "int",
		DecimalType: "double",
		LinkbotType: "CLinkbot",
		PowFunc:     "pow",
		Reserved:    append(append([]string{}, cReserved...), cppReserved...),
	}
	JavaScript = &Language{
		Name:        "js",
		IntType:     "var",
		DecimalType: "var",
		LinkbotType: "var",
		PowFunc:     "Math.pow",
		Reserved:    jsReserved,
	}
)

// LookupLanguage returns the target registered under name
func LookupLanguage(name string) (*Language, error) {
	switch name {
	case "ch":
		return Ch, nil
	case "cpp":
		return Cpp, nil
	case "js":
		return JavaScript, nil
	default:
		return nil, fmt.Errorf("unsupported target '%s'", name)
	}
}

// declare renders the preamble lines for one variable
func (l *Language) declare(name string, kind block.VarKind) string {
	switch kind {
	case block.VarDecimal:
		return fmt.Sprintf("%s %s;", l.DecimalType, name)
	case block.VarLinkbot:
		return fmt.Sprintf("%[1]s %[2]s_wheelDiameter = 3.5;\n%[1]s %[2]s_trackWidth = 3.7;\n%[3]s %[2]s;",
			l.DecimalType, name, l.LinkbotType)
	default:
		return fmt.Sprintf("%s %s;", l.IntType, name)
	}
}

// quote renders s as a single-quoted string literal
func (l *Language) quote(s string) string {
	s = strings.NewReplacer(`\`, `\\`, "\n", `\n`, `'`, `\'`).Replace(s)
	return "'" + s + "'"
}
