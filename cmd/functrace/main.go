// The functrace command demonstrates call tracing through a small sample
// namespace, either by printing call trees directly or by serving the
// monitoring page so tracing can be toggled from the browser.
package main

func main() {
	Execute()
}
