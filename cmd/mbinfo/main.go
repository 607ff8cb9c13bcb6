// Command mbinfo inspects Multiboot2 boot information dumps.
package main

func main() {
	execute()
}
