// Command hpfem runs the stock problems of the hpfem engine and writes the
// solution, element layout and convergence history as tab-separated files.
package main

func main() {
	Execute()
}
