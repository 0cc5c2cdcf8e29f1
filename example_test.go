package replica_test

import (
	"fmt"

	"github.com/gxo-labs/replica"
	"github.com/gxo-labs/replica/pkg/replica/v1/collections"
)

func ExampleDeepClone() {
	type team struct {
		Name    string
		Members []string
		Lead    *string
	}
	lead := "ana"
	src := team{Name: "core", Members: []string{"ana", "ben"}, Lead: &lead}

	c, err := replica.DeepClone(src)
	if err != nil {
		panic(err)
	}
	c.Members[0] = "cal"
	*c.Lead = "cal"

	fmt.Println(src.Members[0], *src.Lead)
	fmt.Println(c.Members[0], *c.Lead)
	// Output:
	// ana ana
	// cal cal
}

func ExampleDeepClone_excludedFields() {
	type account struct {
		User  string
		Token string
	}
	c, err := replica.DeepClone(account{User: "root", Token: "s3cr3t"}, "Token")
	if err != nil {
		panic(err)
	}
	fmt.Printf("%q %q\n", c.User, c.Token)
	// Output: "root" ""
}

func ExampleDeepClone_cycle() {
	type node struct {
		Name string
		Next *node
	}
	a := &node{Name: "a"}
	a.Next = &node{Name: "b", Next: a}

	c, err := replica.DeepClone(a)
	if err != nil {
		panic(err)
	}
	fmt.Println(c.Next.Name, c.Next.Next == c, c == a)
	// Output: b true false
}

func ExampleDeepClone_sortedSet() {
	byLength := func(a, b string) int { return len(a) - len(b) }
	words := collections.NewTreeSet(byLength, "ccc", "a", "bb")

	c, err := replica.DeepClone(words)
	if err != nil {
		panic(err)
	}
	c.Add("dddd")
	fmt.Println(c.Values())
	fmt.Println(words.Values())
	// Output:
	// [a bb ccc dddd]
	// [a bb ccc]
}
