//go:build !nomidi

package madrigal

import (
	Mp "github.com/maroda/madrigal/plugin"
)

func (v *View) getMIDISystemInfo(systemInfo *SystemInfo) {
	// If one of the outputs is MIDI, fill in the details
	for _, o := range outputsOf(v.Output) {
		if midiOut, ok := o.(*Mp.MIDIOutput); ok {
			systemInfo.MIDIPort = midiOut.String()
			systemInfo.MIDIChannel = int(midiOut.Channel) + 1
			break
		}
	}
	systemInfo.MIDIPorts = Mp.MIDIPorts()
}
