//go:build nomidi

package madrigal

func (v *View) getMIDISystemInfo(systemInfo *SystemInfo) {}
