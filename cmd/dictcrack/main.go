// Command dictcrack recovers the plaintext of a hash by hashing every line of
// a dictionary file and comparing it with the target.
//
// Usage:
//
//	dictcrack crack --hash <hex> --dictionary <file> [--strategy parallel]
//	dictcrack digest <word>...
//	dictcrack algorithms
package main

func main() {
	Execute()
}
