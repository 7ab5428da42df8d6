// Package configsync pushes credential configuration out to lock devices.
//
// A lock stores its valid PIN codes and RFID cards locally so it can
// grant access with the broker unreachable. Whenever the credential set
// changes on the server, or a device asks for it, the engine gathers
// the device's active credentials and publishes the full set to the
// device's config topic. Sync is always a complete snapshot, never a
// delta: the device replaces its stored set wholesale, so a missed
// sync is healed by the next one.
package configsync
