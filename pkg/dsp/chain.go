/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package dsp

// Toggles selects which stages of the chain run. Master overrides the four
// per-stage switches: with Master false every stage uses its bypass set.
type Toggles struct {
	Equalizer     bool
	DCBlock       bool
	NotchMains    bool
	NotchHarmonic bool
	Master        bool
}

// Chain is the fixed four-stage filter chain applied to every channel vector:
// FIR equalizer, DC blocker, mains notch, first-harmonic notch, in that
// order. All per-channel filter state lives here and is owned by the
// acquisition path; it is never reset by stream stop/start or preset changes,
// only by process restart.
type Chain struct {
	eq       Equalizer
	dc       DCBlocker
	mains    *Notch
	harmonic *Notch
}

func NewChain() *Chain {
	return &Chain{
		mains:    NewNotchMains(),
		harmonic: NewNotchHarmonic(),
	}
}

// Process runs the chain over one channel vector in place. A disabled stage
// still advances its history through the bypass coefficients so toggling
// never discontinues the delay lines.
func (c *Chain) Process(v *ChannelVector, ratePreset, cutoffPreset, region uint32, t Toggles) {
	c.eq.Process(v, t.Equalizer && t.Master)
	c.dc.Process(v, ratePreset, cutoffPreset, t.DCBlock && t.Master)
	c.mains.Process(v, ratePreset, region, t.NotchMains && t.Master)
	c.harmonic.Process(v, ratePreset, region, t.NotchHarmonic && t.Master)
}
