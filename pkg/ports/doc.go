/*
Package ports defines the interfaces between the fold splitter and the
outside world.

# Key Interfaces

  - EventHandler: the event stream a producer (tokenizer) drives for one document.
  - ConfigStore: persistence of critical-line configurations keyed by URL path.
*/
package ports
