package models

const DateLayout = "2006-01-02"
