// SPDX-License-Identifier: EPL-2.0

// Command capo plays, renders and inspects audio files.
package main

func main() {
	Execute()
}
