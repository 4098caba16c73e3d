package vm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loxlang/lox/lang/heap"
	"github.com/loxlang/lox/lang/vm"
)

// run interprets source against a fresh VM and returns everything it
// printed plus any error Interpret returned (compile or runtime).
func run(t *testing.T, source string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	h := heap.New()
	v := vm.New(h, &out, nil, false)
	err := v.Interpret(source)
	return out.String(), err
}

func TestArithmeticAndPrecedence(t *testing.T) {
	out, err := run(t, `print 1 + 2 * 3;`)
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)
}

func TestStringConcatenation(t *testing.T) {
	out, err := run(t, `print "foo" + "bar";`)
	require.NoError(t, err)
	assert.Equal(t, "foobar\n", out)
}

// TestAddCoercesToStringWhenEitherOperandIsAString grounds spec.md §4.3's
// ADD overload: a String on either side coerces both operands via
// valueToString (Value.Display), rather than requiring both to be Strings.
func TestAddCoercesToStringWhenEitherOperandIsAString(t *testing.T) {
	out, err := run(t, `
		print "x" + 1;
		print 1 + "x";
		print "n=" + nil;
	`)
	require.NoError(t, err)
	assert.Equal(t, "x1\n1x\nn=nil\n", out)
}

func TestControlFlowLoopsAndBranches(t *testing.T) {
	out, err := run(t, `
		var i = 0;
		var sum = 0;
		while (i < 5) {
			sum = sum + i;
			i = i + 1;
		}
		if (sum == 10) {
			print "yes";
		} else {
			print "no";
		}
	`)
	require.NoError(t, err)
	assert.Equal(t, "yes\n", out)
}

func TestForLoopDesugaring(t *testing.T) {
	out, err := run(t, `
		for (var i = 0; i < 3; i = i + 1) {
			print i;
		}
	`)
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n2\n", out)
}

// TestClosureCapturesAndMutatesEnclosingLocal grounds spec.md §8's closure
// scenario: a closure returned from its enclosing function keeps reading and
// writing its captured local after that frame has returned, proving the
// upvalue was closed over the value rather than left pointing at a dead
// stack slot.
func TestClosureCapturesAndMutatesEnclosingLocal(t *testing.T) {
	out, err := run(t, `
		fun makeCounter() {
			var count = 0;
			fun increment() {
				count = count + 1;
				print count;
			}
			return increment;
		}
		var counter = makeCounter();
		counter();
		counter();
		counter();
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestClosureClosesOverLoopVariableEachIteration(t *testing.T) {
	out, err := run(t, `
		fun makeAdders() {
			var adders = {nil, nil, nil};
			for (var i = 0; i < 3; i = i + 1) {
				var captured = i;
				fun adder() {
					return captured;
				}
				adders[i] = adder;
			}
			return adders;
		}
		var adders = makeAdders();
		print adders[0]();
		print adders[1]();
		print adders[2]();
	`)
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n2\n", out)
}

func TestClassInstantiationAndMethods(t *testing.T) {
	out, err := run(t, `
		class Point {
			init(x, y) {
				this.x = x;
				this.y = y;
			}
			sum() {
				return this.x + this.y;
			}
		}
		var p = Point(3, 4);
		print p.sum();
	`)
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)
}

func TestInheritanceAndSuperCalls(t *testing.T) {
	out, err := run(t, `
		class Animal {
			speak() {
				return "...";
			}
			describe() {
				return "an animal that says " + this.speak();
			}
		}
		class Dog < Animal {
			speak() {
				return "woof";
			}
			describe() {
				return super.describe() + "!";
			}
		}
		print Dog().describe();
	`)
	require.NoError(t, err)
	assert.Equal(t, "an animal that says woof!\n", out)
}

func TestBoundMethodRetainsReceiver(t *testing.T) {
	out, err := run(t, `
		class Greeter {
			init(name) {
				this.name = name;
			}
			greet() {
				return "hi " + this.name;
			}
		}
		var g = Greeter("ada");
		var fn = g.greet;
		print fn();
	`)
	require.NoError(t, err)
	assert.Equal(t, "hi ada\n", out)
}

func TestArrayIndexingAndAppend(t *testing.T) {
	out, err := run(t, `
		var a = {1, 2, 3};
		print a[1];
		a[3] = 4;
		print a.length;
		print a[3];
	`)
	require.NoError(t, err)
	assert.Equal(t, "2\n4\n4\n", out)
}

func TestArrayIndexBeyondCountIsRuntimeError(t *testing.T) {
	_, err := run(t, `
		var a = {1, 2};
		a[5] = 9;
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of bounds")
}

// TestArrayLiteralTruthiness grounds spec.md §4.3 "Truthiness": the empty
// array literal is falsey, a non-empty one is truthy, exercised through
// the `{...}` surface syntax rather than types.Value directly.
func TestArrayLiteralTruthiness(t *testing.T) {
	out, err := run(t, `
		print !{};
		print !{0};
	`)
	require.NoError(t, err)
	assert.Equal(t, "true\nfalse\n", out)
}

// TestArrayLiteralMatchesSpecScenario grounds spec.md §8 scenario 6
// verbatim: `var a = {10,20,30}; a[1] = 99; print a[1]; print a.length;`.
func TestArrayLiteralMatchesSpecScenario(t *testing.T) {
	out, err := run(t, `
		var a = {10,20,30};
		a[1] = 99;
		print a[1];
		print a.length;
	`)
	require.NoError(t, err)
	assert.Equal(t, "99\n3\n", out)
}

func TestStringIndexingAndLength(t *testing.T) {
	out, err := run(t, `
		var s = "hello";
		print s.length;
		print s[0];
		print s[4];
	`)
	require.NoError(t, err)
	assert.Equal(t, "5\nh\no\n", out)
}

func TestUndefinedGlobalIsRuntimeError(t *testing.T) {
	_, err := run(t, `print nope;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined variable")
	var re *vm.RuntimeError
	require.ErrorAs(t, err, &re)
	assert.NotEmpty(t, re.Trace)
}

func TestRuntimeErrorTraceIncludesFrames(t *testing.T) {
	_, err := run(t, `
		fun inner() {
			return 1 + nil;
		}
		fun outer() {
			return inner();
		}
		outer();
	`)
	require.Error(t, err)
	var re *vm.RuntimeError
	require.ErrorAs(t, err, &re)
	joined := strings.Join(re.Trace, "\n")
	assert.Contains(t, joined, "inner()")
	assert.Contains(t, joined, "outer()")
}

func TestCompileErrorReturnsCompileErrorType(t *testing.T) {
	_, err := run(t, `var x = ;`)
	require.Error(t, err)
	var ce *vm.CompileError
	require.ErrorAs(t, err, &ce)
	assert.NotEmpty(t, ce.Errs)
}

func TestNativeClockAndSinAreCallable(t *testing.T) {
	out, err := run(t, `
		print clock() >= 0;
		print sin(0);
	`)
	require.NoError(t, err)
	assert.Equal(t, "true\n0\n", out)
}

func TestDiagnosticNativesGatedByVerbose(t *testing.T) {
	_, err := run(t, `print bytes_allocated();`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined variable")
}

func TestGCSoundnessUnderStress(t *testing.T) {
	var out bytes.Buffer
	h := heap.New()
	h.StressGC = true
	v := vm.New(h, &out, nil, false)

	err := v.Interpret(`
		fun makeCounter() {
			var count = 0;
			fun increment() {
				count = count + 1;
				return count;
			}
			return increment;
		}
		var counters = {nil, nil, nil};
		for (var i = 0; i < 3; i = i + 1) {
			counters[i] = makeCounter();
		}
		var total = 0;
		var j = 0;
		while (j < 3) {
			var k = 0;
			while (k < 10) {
				total = counters[j]();
				k = k + 1;
			}
			j = j + 1;
		}
		print total;
	`)
	require.NoError(t, err)
	assert.Equal(t, "10\n", out.String())
}

// TestFieldShadowsMethodOnInvoke grounds spec.md §4.3's INVOKE rule: a
// field holding a callable value takes priority over a same-named method.
func TestFieldShadowsMethodOnInvoke(t *testing.T) {
	out, err := run(t, `
		class Box {
			value() {
				return "method";
			}
		}
		fun fromField() {
			return "field";
		}
		var b = Box();
		b.value = fromField;
		print b.value();
	`)
	require.NoError(t, err)
	assert.Equal(t, "field\n", out)
}
