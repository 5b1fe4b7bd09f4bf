//go:build !js_eval

package megawidget

// NewJSEvaluator returns nil unless the binary is built with the js_eval tag.
func NewJSEvaluator(...EvaluatorOption) Evaluator {
	return nil
}

// JSEvaluatorAvailable reports whether the binary was built with js_eval.
func JSEvaluatorAvailable() bool {
	return false
}

func isJSEvaluator(Evaluator) bool {
	return false
}
