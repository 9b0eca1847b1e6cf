package render

import (
	"reflect"

	"github.com/flosch/pongo2/v6"
)

// forLoop is the forloop variable inside a loop body.
type forLoop struct {
	Counter     int
	Counter0    int
	Revcounter  int
	Revcounter0 int
	First       bool
	Last        bool
	Parentloop  *forLoop
}

// forNode is the for tag. It behaves like the engine's own tag except that
// mappings are always walked in sorted key order.
type forNode struct {
	key      string
	value    string
	object   pongo2.IEvaluator
	reversed bool
	sorted   bool

	body  *pongo2.NodeWrapper
	empty *pongo2.NodeWrapper
}

func (n *forNode) Execute(ctx *pongo2.ExecutionContext, writer pongo2.TemplateWriter) (forErr *pongo2.Error) {
	forCtx := pongo2.NewChildExecutionContext(ctx)

	loop := &forLoop{First: true}
	if parent, ok := forCtx.Private["forloop"].(*forLoop); ok {
		loop.Parentloop = parent
	}
	forCtx.Private["forloop"] = loop

	obj, err := n.object.Evaluate(forCtx)
	if err != nil {
		return err
	}

	obj.IterateOrder(func(idx, count int, key, value *pongo2.Value) bool {
		forCtx.Private[n.key] = key
		if n.value != "" && value != nil {
			forCtx.Private[n.value] = value
		}
		loop.Counter = idx + 1
		loop.Counter0 = idx
		loop.First = idx == 0
		loop.Last = idx+1 == count
		loop.Revcounter = count - idx
		loop.Revcounter0 = count - idx - 1

		if err := n.body.Execute(forCtx, writer); err != nil {
			forErr = err
			return false
		}
		return true
	}, func() {
		if n.empty != nil {
			if err := n.empty.Execute(forCtx, writer); err != nil {
				forErr = err
			}
		}
	}, n.reversed, n.sorted || isMapping(obj))

	return forErr
}

func isMapping(v *pongo2.Value) bool {
	rv := reflect.ValueOf(v.Interface())
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	return rv.Kind() == reflect.Map
}

// parseFor reads "for key[, value] in expr [reversed] [sorted]" followed by
// the body, an optional empty branch and endfor.
func parseFor(doc *pongo2.Parser, start *pongo2.Token, args *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
	node := &forNode{}

	keyToken := args.MatchType(pongo2.TokenIdentifier)
	if keyToken == nil {
		return nil, args.Error("Expected an key identifier as first argument for 'for'-tag", nil)
	}
	node.key = keyToken.Val

	if args.Match(pongo2.TokenSymbol, ",") != nil {
		valueToken := args.MatchType(pongo2.TokenIdentifier)
		if valueToken == nil {
			return nil, args.Error("Value name must be an identifier.", nil)
		}
		node.value = valueToken.Val
	}

	if args.Match(pongo2.TokenKeyword, "in") == nil {
		return nil, args.Error("Expected keyword 'in'.", nil)
	}

	object, err := args.ParseExpression()
	if err != nil {
		return nil, err
	}
	node.object = object

	node.reversed = args.MatchOne(pongo2.TokenIdentifier, "reversed") != nil
	node.sorted = args.MatchOne(pongo2.TokenIdentifier, "sorted") != nil
	if args.Remaining() > 0 {
		return nil, args.Error("Malformed for-loop arguments.", nil)
	}

	body, endargs, err := doc.WrapUntilTag("empty", "endfor")
	if err != nil {
		return nil, err
	}
	if endargs.Count() > 0 {
		return nil, endargs.Error("Arguments not allowed here.", nil)
	}
	node.body = body

	if body.Endtag == "empty" {
		empty, endargs, err := doc.WrapUntilTag("endfor")
		if err != nil {
			return nil, err
		}
		if endargs.Count() > 0 {
			return nil, endargs.Error("Arguments not allowed here.", nil)
		}
		node.empty = empty
	}

	return node, nil
}
