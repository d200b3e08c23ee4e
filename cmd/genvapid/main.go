// Command genvapid prints a fresh VAPID key pair for the push notifier.
package main

import (
	"fmt"
	"log"

	"jobboard/notify"
)

func main() {
	keys, err := notify.GenerateKeys()
	if err != nil {
		log.Fatal("Failed to generate VAPID keys:", err)
	}

	fmt.Println("========================================")
	fmt.Println("VAPID PUBLIC KEY:")
	fmt.Println(keys.Public)
	fmt.Println()
	fmt.Println("VAPID PRIVATE KEY:")
	fmt.Println(keys.Private)
	fmt.Println("========================================")
	fmt.Println("Add these to your .env file:")
	fmt.Println("VAPID_PUBLIC_KEY=" + keys.Public)
	fmt.Println("VAPID_PRIVATE_KEY=" + keys.Private)
	fmt.Println("VAPID_SUBSCRIBER=mailto:admin@example.com")
}
