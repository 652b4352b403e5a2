package testutil

// WithDogScenario declares A D H G O with H and O scoped to "Dog".
//
// Views: default "ADG", Dog "ADHGO".
func (b *Builder) WithDogScenario() *Builder {
	return b.
		WithItem("A").
		WithItem("D").
		WithItem("H", In("Dog")).
		WithItem("G").
		WithItem("O", In("Dog"))
}

// WithNestedProfiles declares seven items where item k belongs to
// profiles "1".."(8-k)". Item 1 is unscoped.
//
// Views: default "1", profile "n" the first 9-n items.
func (b *Builder) WithNestedProfiles() *Builder {
	b.WithItem("1")
	for k := 2; k <= 8; k++ {
		var profiles []string
		for p := 1; p <= 9-k; p++ {
			profiles = append(profiles, string(rune('0'+p)))
		}
		b.WithItem(string(rune('0'+k)), In(profiles...))
	}
	return b
}

// WithSingleProfile declares A D H:X G O:X X:X Z E.
//
// Views: default "ADGZE", X "ADHGOXZE".
func (b *Builder) WithSingleProfile() *Builder {
	return b.
		WithItem("A").
		WithItem("D").
		WithItem("H", In("X")).
		WithItem("G").
		WithItem("O", In("X")).
		WithItem("X", In("X")).
		WithItem("Z").
		WithItem("E")
}

// WithMultiProfiles declares A, then B C G O X Z E scoped to a shrinking
// prefix of profiles "A".."G".
//
// Views: default "A", profile "A" "ABCGOXZE", each next profile one item
// shorter.
func (b *Builder) WithMultiProfiles() *Builder {
	all := []string{"A", "B", "C", "D", "E", "F", "G"}
	b.WithItem("A")
	for i, letter := range []string{"B", "C", "G", "O", "X", "Z", "E"} {
		b.WithItem(letter, In(all[:len(all)-i]...))
	}
	return b
}

// WithDogOnly declares a single item scoped to "Dog".
//
// Views: default empty, Dog "H".
func (b *Builder) WithDogOnly() *Builder {
	return b.WithItem("H", In("Dog"))
}
