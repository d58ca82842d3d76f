// Command catalogctl administers the catalog from a shell: copying it to
// DynamoDB, creating admin accounts and curating trending products.
package main

func main() {
	Execute()
}
