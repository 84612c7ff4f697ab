package ecobee

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecobeehub/internal/core"
)

func TestParseRevision(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    core.Signature
		wantErr bool
	}{
		{
			name:  "connected thermostat",
			input: "123456789012:Living Room:true:10:5:20:3",
			want: core.Signature{
				ThermostatID:  "123456789012",
				Name:          "Living Room",
				Connected:     true,
				ThermostatRev: "10",
				AlertsRev:     "5",
				RuntimeRev:    "20",
				IntervalRev:   "3",
			},
		},
		{
			name:  "disconnected thermostat",
			input: "311000000001:Cabin:false:170101000000:170101000000:170101000000:170101000000",
			want: core.Signature{
				ThermostatID:  "311000000001",
				Name:          "Cabin",
				Connected:     false,
				ThermostatRev: "170101000000",
				AlertsRev:     "170101000000",
				RuntimeRev:    "170101000000",
				IntervalRev:   "170101000000",
			},
		},
		{
			name:  "name containing colon",
			input: "1:Den: North:true:a:b:c:d",
			want: core.Signature{
				ThermostatID:  "1",
				Name:          "Den: North",
				Connected:     true,
				ThermostatRev: "a",
				AlertsRev:     "b",
				RuntimeRev:    "c",
				IntervalRev:   "d",
			},
		},
		{
			name:  "unrecognized connection state",
			input: "2:Office:unknown:1:2:3:4",
			want: core.Signature{
				ThermostatID:  "2",
				Name:          "Office",
				Connected:     false,
				ThermostatRev: "1",
				AlertsRev:     "2",
				RuntimeRev:    "3",
				IntervalRev:   "4",
			},
		},
		{
			name:    "too few fields",
			input:   "123456789012:Living Room:true:10:5:20",
			wantErr: true,
		},
		{
			name:    "empty id",
			input:   ":Living Room:true:10:5:20:3",
			wantErr: true,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRevision(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsMalformed(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
