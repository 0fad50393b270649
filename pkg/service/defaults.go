package service

const defaultScenario = `
hub:
  name: meshpair demo hub

flows:
  - handler: demo
    creates_controller: true
    steps:
      - id: user
        type: form
        fields:
          - name: name
            type: string
            required: true
          - name: port
            type: string
            default: /dev/ttyUSB0
        validators:
          port: "^/dev/[A-Za-z0-9]+$"
        next: method
      - id: method
        type: menu
        options: [scan, manual]
      - id: scan
        type: progress
        progress_action: scanning_network
        delay: 2s
        next: done
      - id: manual
        type: external
        url: https://example.com/authorize
        delay: 3s
        next: done
      - id: done
        type: create_entry
        title: "{name}"

  - handler: unavailable
    steps:
      - id: abort
        type: abort
        reason: no_devices_found

entries:
  - id: demo-controller
    smart_start: true
    step_delay: 300ms
    device:
      name: Door Sensor
      manufacturer: Acme
      model: DS-100
    requested_classes: [S2A, S2U]

entry_template:
  smart_start: true
  step_delay: 300ms
  device:
    name: Multisensor
    manufacturer: Acme
    model: MS-6
`
