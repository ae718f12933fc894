package audio

// ----- ADSR Params ----- //

type adsrValues struct {
	attack  float32 // sec
	decay   float32 // sec
	sustain float32 // 0-1
	release float32 // sec
}

// ----- ADSR ----- //

/*
  1 +    x
    |   / \
    |  /   \
  s + /     x--------x
    |/                \
    |                  \
  0 +----+----+--------+---+
    |a   |d   |        |r  |
    ^ note on          ^ note off

  t is the time since note on, for the release phase too.
*/
func adsr(gate bool, t float32, p adsrValues) float32 {
	if gate {
		if t < p.attack {
			return t / p.attack
		}
		if t < p.attack+p.decay {
			return 1 - (1-p.sustain)*(t-p.attack)/p.decay
		}
		return p.sustain
	}
	if t < p.release {
		return p.sustain * (1 - t/p.release)
	}
	return 0
}
