package shaper_test

import (
	"fmt"

	"github.com/cwbudde/algo-shaper/shaper"
)

func ExampleImpulses() {
	train, err := shaper.Impulses(shaper.TypeZV, 50, 0.1)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("impulses: %d\n", len(train.Amplitudes))
	fmt.Printf("weights: %.3f %.3f\n", train.Amplitudes[0], train.Amplitudes[1])
	fmt.Printf("|H(50)| = %.3f\n", train.Transfer(50))
	fmt.Printf("smoothing: %.4f s\n", train.SmoothingTime())

	// Output:
	// impulses: 2
	// weights: 0.578 0.422
	// |H(50)| = 0.157
	// smoothing: 0.0101 s
}

func ExampleParseType() {
	typ, err := shaper.ParseType("2hump_ei")
	if err != nil {
		fmt.Println(err)
		return
	}
	m, _ := shaper.Meta(typ)
	fmt.Printf("%s: %d impulses\n", typ, m.Impulses)

	// Output:
	// 2hump_ei: 4 impulses
}
